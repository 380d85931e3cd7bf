/*
Package array is the typed client facade for the array management API.

It covers exactly the endpoints the driver needs: filesystem lifecycle,
snapshot lifecycle, export-rule listing and mutation, and the array-wide
space report. No business logic lives here; the facade translates between
Go types and the wire, owns the authentication session, and maps array
error responses into the driver error taxonomy.

Session handling follows a scoped-acquisition model: the session token is
acquired lazily on first use, refreshed transparently when the array
expires it mid-call, and released by Close. An expired-session refresh
re-sends the original request exactly once; requests the array has already
evaluated are never re-sent.
*/
package array
