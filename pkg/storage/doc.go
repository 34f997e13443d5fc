// Package storage writes files without leaving partial content behind.
//
// WriteFileAtomic is shared by the session store, the encrypted credential
// file and the report writer. Manager scopes writes and listings to the
// report output directory.
package storage
