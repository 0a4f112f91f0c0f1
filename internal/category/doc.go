// Package category holds the fixed set of action statuses the formatter
// understands and, for each one, the classification prompt, the JSON schema
// the model must answer with and the HTML template the answer is rendered
// into.
//
// The built-in definitions are embedded. A YAML file with the same shape can
// replace them:
//
//	reg, err := category.Load("/etc/formatter/categories.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, ok := reg.Lookup("not_done")
package category
