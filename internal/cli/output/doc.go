// Package output formats command results for rediminute-cli.
//
// Formats: text mimics redis-cli ("OK", "(nil)", "(integer) 1"), json
// writes one compact value per line, yaml writes one document per result.
package output
