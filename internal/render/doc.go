// Package render implements the {{#each}} fragment renderer used to turn a
// classification result into HTML.
//
// A template is literal text with zero or more blocks:
//
//	<ul>{{#each items}}<li>{{this}}</li>{{/each}}</ul>
//
// Each block bound to a string list in the render data is replaced by its
// inner fragment, instantiated once per element with every {{this}}
// substituted by the element value. Values are inserted verbatim.
//
// Example usage:
//
//	data := render.NewData()
//	data.Set("items", render.List("a", "b"))
//
//	html := render.Render("<ul>{{#each items}}<li>{{this}}</li>{{/each}}</ul>", data)
//	// Output: <ul><li>a</li><li>b</li></ul>
//
// Blocks with no binding, or bound to a scalar, are left untouched. Nested
// blocks are not supported: the outer block is emitted verbatim. Validate
// reports these cases for templates that are known ahead of time.
//
// Render never fails and holds no state, so it is safe to call from any
// number of goroutines.
package render
