// Package search implements constraint-based causal structure search over
// partial ancestral graphs.
//
// The entry points are [Fci] (latent-confounder search producing a PAG)
// and [Ccd] (the cyclic-discovery variant, which additionally marks
// underline and dotted-underline triples and may replace edges). Both
// consume a skeleton graph produced by an external structure search and
// an independence [Oracle], and share the same building blocks:
//
//   - [SepsetProducer] finds and caches separating sets for non-adjacent
//     pairs, searching conditioning sets in increasing size and
//     lexicographic combination order.
//   - [Orienter] applies the collider rule and the endpoint propagation
//     rules (R1-R4 plus the discriminating-path rule, optionally Zhang's
//     complete rule set) to a fixpoint.
//   - [Knowledge] holds forbidden and required edge directions that take
//     precedence over every rule-derived orientation.
//
// All searches are single-threaded and own their graph exclusively for
// the duration of one run.
package search
