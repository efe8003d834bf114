// Package sendingdomain lets customers prove ownership of the domains they
// send from. Each domain carries an RSA key pair; publishing the public key
// as a DKIM TXT record and calling Verify marks the domain verified.
//
// Verification optionally registers the domain as an SES identity signing
// with the same key, and DNS lookups are throttled process-wide.
package sendingdomain
