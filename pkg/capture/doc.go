// Package capture stores recorded MoQ control streams.
//
// A capture is the raw bytes of one direction of a control stream, exactly
// as read off the wire. Captures are saved under an ID and can later be
// replayed message by message:
//
//	store, err := capture.NewFileStore("/var/lib/moqwire/captures", 8<<20)
//	info, err := store.Save(ctx, capture.NewID(), conn)
//
//	err = capture.Replay(ctx, store, info.ID, func(m protocol.Message) error {
//	    fmt.Println(m.Type())
//	    return nil
//	})
//
// # Backends
//
// FileStore keeps one file per capture in a directory. S3Store keeps one
// object per capture under a key prefix in a bucket; build its client with
// NewS3Client or pass any *s3.Client.
//
// # IDs
//
// IDs are 1 to 128 characters from [A-Za-z0-9._-] and may not start with
// a dot. NewID returns a random 32-character hex ID.
package capture
