// Package resolve decides which declared response source answers a request
// and turns it into bytes.
//
// A response may declare several competing sources: literal example text,
// an example file, a structured inline example, and a JSON Schema. The
// Policy ranks their kinds; ties go to whichever was declared first. Schema
// sources are synthesized on every request, so repeated calls return fresh
// values.
package resolve
