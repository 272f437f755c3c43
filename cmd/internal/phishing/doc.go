// Package phishing runs the security-awareness phishing simulation.
//
// A tester asks for a simulated account-security notice to be mailed to a
// target address. The notice links back to the track-click endpoint; a click
// is recorded, the configured alert address is notified, and the browser is
// sent to the training page.
package phishing
