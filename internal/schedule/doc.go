// Package schedule assigns concrete, collision-free publish slots to
// validated staged content and computes advisory engagement predictions.
package schedule
