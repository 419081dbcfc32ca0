// Warden is a rule-based text policy engine for game server networks.
//
// It evaluates chat messages, commands, sign text and player tags against
// ordered declarative rule files, dispatches join/quit/kick/death messages
// and runs timed broadcasts.
//
// Usage:
//
//	# Start the daemon with the default configuration
//	warden run
//
//	# Start with a custom configuration file
//	warden run --config /etc/warden/warden.yaml
//
//	# Validate rule and message files
//	warden lint --rules rules/ --messages messages/
//
//	# Show version information
//	warden version
package main

func main() {
	Execute()
}
