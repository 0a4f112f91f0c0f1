// Package template provides a Handlebars template engine for rendering LLM
// classification prompts.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "fields": []string{"blocked", "do_next"},
//	    "text":   "the build was red",
//	}
//
//	prompt, err := engine.Render("Fields: {{join fields \", \"}}\n{{text}}", data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Built-in helpers:
//   - join - Join a list with a separator
//   - trim - Trim whitespace from a string
//   - default - Return a default value if the first argument is empty
//
// Handlebars escapes HTML in {{expr}}; use {{{expr}}} for raw prompt text.
package template
