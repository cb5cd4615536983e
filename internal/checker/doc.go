// Package checker runs security.txt checks against hosts.
//
// Architecture overview:
//
//   - HostChecker implements the Checker interface (Check + Name). It turns
//     user input into a host name with ParseHost, asks the parser to fetch
//     and parse the host's file, and snapshots everything into a
//     CheckResult together with the expiry state and the validity verdict.
//   - Runner coordinates concurrent execution with a global rate limit,
//     invoking a shared ReportFunc per target so the CLI and the API can
//     record progress the same way.
//   - CheckResult is the one shape used for console output, JSON and YAML
//     reports, the API and the cache. Diagnostics flattens its violations
//     into the order they are printed in.
//
// Events lets callers react to expiry and signature findings without
// walking the result themselves.
package checker
