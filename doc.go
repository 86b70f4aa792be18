// Package fdata extracts the files stored in RDB/FData game-asset
// containers.
//
// A container holds a sequence of entries, each carrying a type-info
// identifier, a file identifier and a payload that is either stored verbatim
// or split into independently zlib-compressed chunks. Extraction writes every
// entry to
//
//	<output>/<group>/<extension>/<name>
//
// where the extension comes from the type-info table, the name from the name
// table (falling back to the hexadecimal file identifier) and the group from
// object-graph files.
//
// # Quick Start
//
// Extract every container below a directory:
//
//	x, err := fdata.New("./data", fdata.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	report, err := x.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, f := range report.Failed() {
//	    log.Printf("%s: %v", f.Path, f.Err)
//	}
//
// # Phases
//
// Later phases depend on tables built by earlier ones, so [Extractor.Run]
// processes files in this order, waiting for each phase to finish before
// starting the next:
//
//  1. Name files (*.name) add synthesized names to the name table.
//  2. Priority containers are extracted.
//  3. Object graphs (*.kidsobjdb), including those just extracted, fill
//     the group table.
//  4. The remaining containers (*.fdata*) are extracted.
//  5. Loose single-entry files (*.file) are extracted.
//
// Files within a phase are processed concurrently. A file that fails is
// logged and reported; it never stops the run.
package fdata
