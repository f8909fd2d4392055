// Package param parses the short text strings fed to a tool's control
// channel (or given once on the command line) into validated control
// values.
//
// A control value is a 64-bit magnitude in one of two domains:
//   - Duration: a nanosecond period or holding time ("1.5", "250ms",
//     "9600bps", "0%", "100%")
//   - Quantity: a byte or line quota ("512", "4ki", "2M")
//
// plus two sentinels: infinite (hold forever / fully open) and terminate
// (stop the consumer). A leading "+" marks an additive update, which is
// only legal on a live channel.
//
// Parsing never panics and never kills the process: a bad live update is
// reported with a reject code and the caller keeps the previous value.
// Pure-integer inputs are scaled in unsigned fixed point so quantities
// near the uint64 maximum stay exact; inputs with a decimal point or
// exponent go through floating point. Scaled results that do not fit
// saturate to the maximum on a live channel and are a hard error for a
// command-line argument.
package param
