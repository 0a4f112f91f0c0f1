package render

import "strings"

// Render expands every top-level block of tmpl bound to a list in data and
// returns the result. Blocks are processed in document order in one pass, so
// inserted values are never scanned for markers.
//
// Blocks bound to a scalar, blocks with no binding and nested blocks are
// copied verbatim. An empty list removes the block. A nil data renders the
// template unchanged.
func Render(tmpl string, data *Data) string {
	if data.Len() == 0 || !strings.Contains(tmpl, openPrefix) {
		return tmpl
	}

	var out strings.Builder
	out.Grow(len(tmpl))

	for _, seg := range scan(tmpl) {
		if seg.block == nil {
			out.WriteString(seg.text)
			continue
		}
		expand(&out, seg.block, data.Lookup(seg.block.name))
	}

	return out.String()
}

// expand writes one block according to the value bound to its name.
func expand(out *strings.Builder, b *block, v Value) {
	switch v.Kind() {
	case KindList:
		if b.nested {
			out.WriteString(b.raw)
			return
		}
		for _, item := range v.items {
			out.WriteString(strings.ReplaceAll(b.inner, placeholder, item))
		}
	case KindScalar, KindMissing:
		out.WriteString(b.raw)
	}
}
