// Package log provides secure logging built on the standard slog package.
//
// A password recovery engine handles secrets on every code path: candidates
// are guesses at a password, the winning candidate is the password, and the
// oracle command line carries it as an argument. The SecureHandler masks:
//   - attributes named password, candidate, pwd, passphrase, found, ...
//   - string values that look like an oracle password switch (-psecret)
//   - string slices such as oracle argv, element by element
//
// Even in verbose mode secrets are masked, so logs can be shared safely.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("oracle started",
//	    "argv", []string{"7z", "t", "-psecret", "a.zip"}, // -p***REDACTED***
//	    "candidate", "secret",                             // ***REDACTED***
//	)
//	slog.SetDefault(logger)
package log
