// Package files discovers input datasets on disk. Case pipelines use
// it to locate the CSV and Excel files they ingest.
package files
