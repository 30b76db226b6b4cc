/*
	Package api holds the serializable vocabulary of ustar: error categories,
	exit codes, monitor events, and extraction manifests.

	The heuristic for this package is the same one the rest of the library
	follows: everything a caller needs to interpret the outcome of an
	operation must be expressible in these types, so that results can be
	printed as json by the command line tool and consumed by other processes
	without importing any of the codec packages.
*/
package api
