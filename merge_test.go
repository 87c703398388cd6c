package stratum

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mergeFixtures() []testPartial {
	return []testPartial{
		{},
		{Foo: Present[uint32](1)},
		{Foo: Present[uint32](2), Baz: Present("b")},
		{Bar: Present(true), Nested: nestedPartial{Foo: Present[uint32](9)}},
		{Baz: Present(""), Nested: nestedPartial{Foo: Present[uint32](0)}},
		testSchema.Default(),
	}
}

func TestMergeRightBias(t *testing.T) {
	a := testPartial{Foo: Present[uint32](1), Bar: Present(true), Nested: nestedPartial{Foo: Present[uint32](5)}}
	b := testPartial{Foo: Present[uint32](2), Baz: Present("b")}
	got := testSchema.Merge(a, b)
	want := testPartial{
		Foo:    Present[uint32](2),
		Bar:    Present(true),
		Baz:    Present("b"),
		Nested: nestedPartial{Foo: Present[uint32](5)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePresentZeroOverrides(t *testing.T) {
	a := testPartial{Bar: Present(true)}
	b := testPartial{Bar: Present(false)}
	if got := testSchema.Merge(a, b); !got.Bar.Equal(Present(false)) {
		t.Fatalf("expected present false to win, got %v", got.Bar)
	}
}

func TestMergeDoesNotModifyArguments(t *testing.T) {
	a := testPartial{Foo: Present[uint32](1)}
	b := testPartial{Foo: Present[uint32](2)}
	_ = testSchema.Merge(a, b)
	if !a.Foo.Equal(Present[uint32](1)) || !b.Foo.Equal(Present[uint32](2)) {
		t.Fatalf("arguments changed: %v %v", a.Foo, b.Foo)
	}
}

func TestMergeAssociative(t *testing.T) {
	fixtures := mergeFixtures()
	for _, a := range fixtures {
		for _, b := range fixtures {
			for _, c := range fixtures {
				left := testSchema.Merge(testSchema.Merge(a, b), c)
				right := testSchema.Merge(a, testSchema.Merge(b, c))
				if diff := cmp.Diff(left, right); diff != "" {
					t.Fatalf("merge not associative (-left +right):\n%s", diff)
				}
			}
		}
	}
}

func TestMergeIdentity(t *testing.T) {
	for _, p := range mergeFixtures() {
		if diff := cmp.Diff(p, testSchema.Merge(testSchema.New(), p)); diff != "" {
			t.Fatalf("left identity failed (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(p, testSchema.Merge(p, testSchema.New())); diff != "" {
			t.Fatalf("right identity failed (-want +got):\n%s", diff)
		}
	}
}

func TestMergeAll(t *testing.T) {
	got := MergeAll[testPartial, testConfig](testSchema,
		testSchema.Default(),
		testPartial{Baz: Present("x")},
		testPartial{Foo: Present[uint32](7)},
	)
	cfg, err := testSchema.Resolve(got)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.Foo != 7 || cfg.Baz != "x" || cfg.Nested.Foo != 524288 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
