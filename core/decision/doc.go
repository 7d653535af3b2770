// Package decision selects a parking provider for an agent acting on behalf
// of a user.
//
// Two pipelines are exposed by Engine:
//
//   - Decide runs the static pipeline: whitelist, market-price cap, single
//     transaction budget, then a price/queue/distance score.
//   - DecideWithScenario runs the scenario pipeline: whitelist, optional
//     charger capability, ETA and cost estimation, deadline feasibility, then
//     a normalised time/cost score.
//
// Every stage appends one human-readable thought to the result so callers can
// audit how the winner was reached. Rejections are reported through
// Result.OK and Result.Reason, never as errors. The engine performs no I/O and
// keeps no mutable state, so a single Engine can serve concurrent callers.
package decision
