// Package pipeline implements the five-stage placement workflow: scene
// generation, base image generation, product selection, composition,
// and mask generation, plus the orchestrator that sequences them and
// joins their outputs into final placements.
//
// Every stage after the first fans out over its inputs with bounded
// concurrency and tolerates per-item failure; scene_id is the only
// identity that correlates work across stages. A stage aborts the run
// only when it produces zero usable outputs.
package pipeline
