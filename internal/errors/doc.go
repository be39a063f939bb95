// Package errors provides coded, categorised errors for the selsync
// command and its configuration.
//
// Each code maps to a registered template holding a short message and a
// longer explanation. Errors can carry a location in a configuration file,
// a hint, and a wrapped cause:
//
//	err := errors.New("E101").
//	    WithLocation("selsync.yaml", 4, 0).
//	    WithSuggestion("Indent nested keys with spaces, not tabs").
//	    Wrap(cause)
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E101: Invalid configuration syntax
//	//
//	//   selsync.yaml:4
//	//
//	//       2 │ server:
//	//       3 │   port: 8080
//	//   →   4 │ 	host: x
//	//       5 │ log:
//	//
//	//   The configuration file could not be parsed.
//	//
//	//   Hint: Indent nested keys with spaces, not tabs
package errors
