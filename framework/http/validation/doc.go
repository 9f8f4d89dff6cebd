// Package validation checks request parameters against rule strings.
//
// # Overview
//
// Rules are pipe-separated strings keyed by field name. Values are read from
// a tool.ParamPack, so a request's Params (form, then query) can be checked
// directly.
//
// # Basic Usage
//
//	v := validation.Make(req.Params, validation.Rules{
//	    "name":  "required|min:2|max:100",
//	    "email": "required|email",
//	})
//
//	if err := v.Validate(); err != nil {
//	    return err // 400 WebError, Fields holds the messages
//	}
//
//	if v.Fails() {
//	    // v.Errors().Bag is map[string][]string
//	}
//
// # Available Rules
//
// String rules:
//   - required - field must be present and non-empty (lists: non-empty)
//   - string   - value is not a list
//   - min:n    - minimum n UTF-8 characters
//   - max:n    - maximum n UTF-8 characters
//   - size:n   - exactly n UTF-8 characters
//   - between:min,max - length between min and max (inclusive)
//   - alpha    - letters only [a-zA-Z]
//   - alpha_num - letters and numbers [a-zA-Z0-9]
//   - alpha_dash - letters, numbers, dashes, underscores
//   - regex:pattern - must match regexp pattern
//
// Format rules:
//   - email - valid RFC 5322 email address
//   - url   - must start with http:// or https://
//
// Numeric rules:
//   - numeric - parseable as float64
//   - integer - parseable as int
//   - gt:n    - greater than n
//   - gte:n   - greater than or equal to n
//   - lt:n    - less than n
//   - lte:n   - less than or equal to n
//
// Comparison rules:
//   - confirmed       - field_confirmation must match field
//   - same:other      - must equal data[other]
//   - different:other - must not equal data[other]
//
// Type rules:
//   - boolean - true/false/1/0/yes/no (case-insensitive)
//   - in:a,b,c     - value must be in the comma-separated list
//   - not_in:a,b,c - value must NOT be in the comma-separated list
//
// Control rules:
//   - nullable  - allows empty/missing values; stops further rule processing
//   - sometimes - skips all rules silently if field is absent
//
// # Error Bag
//
// Errors serialise as:
//
//	{
//	  "errors": {
//	    "email": ["The email field is required.", "The email must be a valid email address."],
//	    "age":   ["The age must be greater than or equal to 18."]
//	  }
//	}
package validation