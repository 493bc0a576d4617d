// Package types contains the shared data model for the indexing and
// retrieval engine: documents, chunks, search filters and results, and the
// persisted incremental index state.
//
// Everything in this package is plain data. Behavior lives in the internal
// packages (processor, chunking, embedding, vectorstore, indexer, retriever).
package types
