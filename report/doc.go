// Package report turns a transcription into a downloadable structured
// report.
//
// The report body is
//
//	Structured Report
//
//	<transcription>
//
//	Processing Time: 1.234 seconds
//
// with every non-ASCII character removed. It is written as plain text or as
// a single-flow PDF to a fixed file name per format (structured_report.txt,
// structured_report.pdf), replacing the previous report of that format.
// Config.UniqueNames switches to one file per request.
package report
