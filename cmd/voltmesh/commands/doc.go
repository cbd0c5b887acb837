// Package commands defines the voltmesh CLI and wires dependencies for subcommands.
//
// Commands
//
//   - run            Execute one optimization cycle and print the result
//   - serve          Run the HTTP API server
//   - audit verify   Recompute every audit entry signature
//   - audit export   Write the audit trail as JSON
//   - settlement     Print the settlement report
//
// # Implementation
//
// The root command loads the configuration and assembles the full service
// graph (queue, grid source, optimizer, Beckn client, audit trail, notifier)
// before any subcommand runs, so handlers share one app context.
package commands
