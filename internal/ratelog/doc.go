// Package ratelog wraps go-datatrails-common/logger the way the teacher's
// components hold a bare logger.Logger field, adding the handful of
// structured fields (world, terrain, emitter) every layer of this module
// logs so call sites don't each re-derive hex-encoded ids by hand.
package ratelog
