// Package stratum resolves configuration from layers. Every configuration
// struct T is paired with a partial struct P whose leaves are Opt values, so a
// layer can say exactly which fields it sets. Partials from defaults, files,
// documents and environment lookups are merged with later layers winning, and
// the final partial is resolved into T with every missing required field
// reported in one BatchError.
//
// Partials are described with `stratum` struct tags that list candidate
// environment names, a default and an optional string format:
//
//	type Config struct {
//	    LogLevel string
//	    Timeout  *time.Duration
//	}
//
//	type ConfigPartial struct {
//	    LogLevel stratum.Opt[string]        `json:"logLevel" stratum:"env:MY_APP_LOG_LEVEL,LOG_LEVEL default:info"`
//	    Timeout  stratum.Opt[time.Duration] `json:"timeout" stratum:"env:TIMEOUT"`
//	}
//
//	schema := stratum.MustSchema[ConfigPartial, Config]()
//	cfg, err := stratum.Load(ctx, schema,
//	    stratum.WithDefaults(),
//	    stratum.WithOptionalFile("config.yaml"),
//	    stratum.WithEnv(stratum.OSEnv()),
//	)
//	if err != nil {
//	    var batch *stratum.BatchError
//	    if errors.As(err, &batch) {
//	        log.Println(batch.Paths())
//	    }
//	}
//
// Partials that need custom merge rules implement Merge and Resolve by hand
// and are either used through Manual or embedded as a field of a schema
// partial.
package stratum
