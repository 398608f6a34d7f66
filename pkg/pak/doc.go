/*
Package pak reads and writes the legacy uncompressed pak archive format
(file extension d2p, historically "Pak Protocol 2").

A pak archive stores many named byte blobs ("chunks") inside one or more
physical segment files. A segment whose property table contains the
reserved key "link" points at the next segment of the chain; MergeReader
follows the chain and exposes one unified, randomly addressable view of
every chunk and property across all segments.

Segment layout (all integers big-endian):

	1. Header : from start 0
	    +----------------------+----------------+-----------------------+
	    |   header             |    1 byte      |   value expected 2    |
	    |   header             |    1 byte      |   value expected 1    |
	    +----------------------+----------------+-----------------------+

	2. Info : from end -24
	    +----------------------+----------------+-----------------------+
	    |   offset             |    4 bytes     |   base of chunk data  |
	    |   size               |    4 bytes     |   declared size       |
	    |   chunks_offset      |    4 bytes     |   chunk table start   |
	    |   chunks_count       |    4 bytes     |                       |
	    |   properties_offset  |    4 bytes     |   property table start|
	    |   properties_count   |    4 bytes     |                       |
	    +----------------------+----------------+-----------------------+

	3. Properties : from start properties_offset
	    for 0 to properties_count
	        +---------------------+------------------------------------+
	        |   key               |  2 bytes (length) | string (utf8)  |
	        |   value             |  2 bytes (length) | string (utf8)  |
	        +---------------------+------------------------------------+

	4. Chunks : from start chunks_offset
	    for 0 to chunks_count
	        +---------------------+------------------------------------+
	        |   name              |  2 bytes (length) | string (utf8)  |
	        |   offset            |  4 bytes                           |
	        |   size              |  4 bytes                           |
	        +---------------------+------------------------------------+

The data described by a chunk starts at Info.offset + Chunk.offset.

If the value of the "link" property is "B.d2p", the next segment is the
file named "B.d2p" in the directory of the initial archive, never the
directory of the segment currently being read.
*/
package pak
