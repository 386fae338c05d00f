// Package report writes extraction results to tabular files.
//
// Two formats are supported: a plain CSV with one row per exported crop,
// and an XLSX workbook with the same columns plus widths suited to long
// file paths. Both take the sign list produced by the pipeline and are
// safe to call with an empty list, which yields a header-only file.
package report
