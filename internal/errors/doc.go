// Package errors provides structured, actionable error messages for the
// moqwire command line.
//
// Each error carries a code that maps to a short message, a longer
// explanation and, where it helps, a suggestion for fixing the input.
// Decode failures also carry the byte offset at which decoding stopped.
//
// # Error Categories
//
//   - config: moqwire.json could not be found, parsed or validated
//   - protocol: the input is not a valid MoQ control or data stream
//   - capture: a stored capture could not be saved or read
//   - cli: command line arguments or input encoding are wrong
//
// # Usage
//
//	err := errors.New("E200").
//	    WithOffset(17).
//	    WithSuggestion("Check that the input starts at a message boundary")
//
//	errors.PrintError(os.Stderr, err)
//
// FromDecode picks the code for an error returned by the protocol or
// transport packages.
package errors
