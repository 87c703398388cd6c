package document

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// DecodeHCL decodes a native-syntax HCL document into v. Attributes map to
// leaves and unlabeled blocks map to nested partials. Expressions are
// evaluated without variables or functions.
func DecodeHCL(data []byte, filename string, v any) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return fmt.Errorf("document: hcl: %s", diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("document: hcl: unexpected body type %T", file.Body)
	}
	value, diags := bodyValue(body)
	if diags.HasErrors() {
		return fmt.Errorf("document: hcl: %s", diags.Error())
	}
	buf, err := ctyjson.Marshal(value, value.Type())
	if err != nil {
		return fmt.Errorf("document: hcl: %w", err)
	}
	return DecodeJSON(buf, v)
}

func bodyValue(body *hclsyntax.Body) (cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	attrs := make(map[string]cty.Value, len(body.Attributes)+len(body.Blocks))
	for name, attr := range body.Attributes {
		value, valueDiags := attr.Expr.Value(nil)
		diags = append(diags, valueDiags...)
		attrs[name] = value
	}
	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Labeled block not supported",
				Detail:   fmt.Sprintf("Block %q must not have labels.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			})
			continue
		}
		if _, exists := attrs[block.Type]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate block",
				Detail:   fmt.Sprintf("%q is already defined.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			})
			continue
		}
		value, blockDiags := bodyValue(block.Body)
		diags = append(diags, blockDiags...)
		attrs[block.Type] = value
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal, diags
	}
	return cty.ObjectVal(attrs), diags
}
