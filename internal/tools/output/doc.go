// Package output shapes raw Jira API payloads into text an LLM can consume.
//
// Jira endpoints routinely return payloads far larger than a model's context
// window, full of fields the caller never asked for. This package implements a
// three-stage pipeline that runs after every successful API call:
//
//	filter (JMESPath) -> encode (TOON or JSON) -> truncate (with guidance)
//
// # Filtering
//
// [ApplyFilter] projects the payload with a JMESPath expression. A blank
// expression is the identity. An expression that fails to compile or evaluate
// never aborts the request: the result carries the error message and the
// original payload so the caller can correct the expression.
//
// # Encoding
//
// [EncoderHandle] owns the compact tabular encoder and loads it on first use.
// Compact output is the default; "json" selects two-space indented JSON. Any
// compact encoding problem silently falls back to JSON. Both encodings are
// deterministic for a given input.
//
// # Truncation
//
// [Truncate] cuts text over the character budget (40000 by default), preferring
// a line break close to the limit, and appends a guidance block telling the
// caller where the full payload was saved and how to ask for less.
//
// # Usage Example
//
//	processor := output.NewProcessor(output.DefaultConfig())
//	text := processor.Render(ctx, payload, output.RenderOptions{
//		FilterExpression: "issues[*].{key: key, summary: fields.summary}",
//		OutputFormat:     output.FormatCompact,
//		RawResponsePath:  rawPath,
//	})
package output
