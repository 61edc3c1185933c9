// Package memory implements the developer memory store: solutions recalled
// by semantic similarity, failures deduplicated by normalized signature,
// repository fingerprints, and warnings attached to files or packages.
//
// Solutions carry a score in [0, 1] updated from reported outcomes. Recall
// ranks by a blend of similarity and score, with boosts for solutions from
// the querying repository or from repositories with a close tech stack.
package memory
