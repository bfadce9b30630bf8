// Package testutil provides an in-memory storage.Storage with failure
// injection for report and pipeline tests.
//
//	store := testutil.NewMemStorage()
//	store.FailUploads(errors.New("disk full"))
package testutil
