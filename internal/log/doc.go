// Package log builds the structured logger used by the upload job.
//
// Logs are written with log/slog through SecureHandler, which masks
// credentials before they reach any output:
//   - attributes whose key names a secret (credentials, token, password)
//   - connection strings, where only the password part is replaced
//   - values that look like bearer tokens, JWTs or PEM private keys
//
// # Usage
//
//	logger, err := log.New(log.Options{
//	    Verbose: verbose,
//	    Dir:     log.DefaultDir(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("connected", "mongo_uri", cfg.MongoURI) // mongodb://app:***REDACTED***@db:27017
//
// Every run writes a timestamped file, upload_YYYYMMDD_HHMMSS.log, next to
// the terminal output unless file logging is disabled.
package log
