package session

// Archive chunk names. Renaming one breaks every existing save.
const (
	ChunkPlayer   = "you"
	ChunkSummary  = "chr"
	ChunkStashes  = "st"
	ChunkKills    = "kil"
	ChunkTravel   = "tc"
	ChunkNotes    = "nts"
	ChunkMessages = "msg"
	ChunkLua      = "lua"
	ChunkTileDoll = "tdl"
)
