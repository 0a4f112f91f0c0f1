// Package cel provides a CEL (Common Expression Language) evaluator for
// request validation rules.
//
// CEL is a non-Turing complete expression language that provides fast, safe
// evaluation of conditions against a decoded request body.
//
// Example usage:
//
//	evaluator, err := cel.NewEvaluator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vars := map[string]interface{}{
//	    "request":    map[string]interface{}{"status": "done"},
//	    "categories": []string{"done", "not_done", "canceled"},
//	}
//
//	ok, err := evaluator.EvaluateBool(ctx, "request.status in categories", vars)
//
// Declared variables:
//   - request - the JSON request body as a map (empty map for non-objects)
//   - categories - the list of recognised statuses
package cel
