// Package era converts Japanese era years (和暦) into Gregorian years and
// applies the April-start fiscal year used by Japanese schools.
//
// Era boundaries come from a static, versioned Table rather than from host
// locale data, and every lookup takes the reference moment explicitly so
// results are deterministic in tests.
package era
