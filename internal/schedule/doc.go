// Package schedule parses and evaluates task recurrence expressions.
//
// Supported forms (keywords and day names are case-insensitive, input is trimmed):
//   - "everyday"            fires on every date
//   - "every <weekday>"     fires on that English weekday, e.g. "every Monday"
//   - "days:<d>,<d>,..."    fires when the day of month is listed, e.g. "days:1,15"
//
// Anything else parses to an inert expression that never fires. That is not
// an error: only a non-integer entry inside "days:" is reported, as a
// *MalformedError.
package schedule
