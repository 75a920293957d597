// Package content loads authored curriculum content from CUE.
//
// A content package declares four top-level fields:
//
//	skill: [id=string]: {name: string, prereqs: [...string], ...}
//	edge: [...{source: string, relation: string, target: string}]
//	epitome: [id=string]: {mechanism: string, example: string, core_node_ids: [...string]}
//	organizer: [id=string]: {anchor_concepts: [...string], edges: [...]}
//
// Every item is decoded into its schema value object and validated. Loading
// does not stop at the first problem; all of them are collected so an
// author sees the whole picture in one pass. References to skills that are
// not declared are warnings. Prerequisite cycles are errors.
package content
