// Package bridgeerr defines the error taxonomy of the Nova bridge.
//
// Every failure the bridge can observe is reported as a *Error carrying a
// Kind. The Kind decides how far the failure propagates:
//
//   - KindConfigValidation: fatal, only produced before the run loop starts
//   - KindResolution, KindConnect, KindStream: end the current connection
//     attempt; the supervisor waits the reconnect delay and starts over
//   - KindMalformedRecord, KindUnmappableRecord, KindComputation: drop the
//     current shot; the stream keeps going
//
// Network errors are classified (timeout, refused, unreachable, DNS, closed)
// so the console can show a short message plus a troubleshooting hint:
//
//	if err := dial(); err != nil {
//	    bErr := bridgeerr.NewConnectError("192.168.1.40:2921", err)
//	    fmt.Println(bridgeerr.ShortMessage(bErr))
//	    fmt.Println(bridgeerr.Hint(bErr))
//	}
package bridgeerr
