/*
	The tar transmat extracts USTAR archives (optionally compressed) into a
	filesystem, using the ustar package's decoder.

	ExtractFile and ScanFile work on archive paths; Unpack and Scan work on
	any stream.
*/
package tartrans

import (
	"github.com/polydawn/ustar/transmat/util"
)

var (
	ExtractFile util.ExtractFunc = util.CreateExtractor(Unpack)
	ScanFile    util.ScanFunc    = util.CreateScanner(Unpack)
)
