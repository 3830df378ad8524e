package logfields

const (
	LogSubsys    = "subsys"
	LogComponent = "component"

	// File the source file name of the current compilation unit
	File = "file"

	// Symbol the symbol or stab string being decoded
	Symbol = "symbol"

	// TypeNum the (file,index) type number pair
	TypeNum = "typenum"
)
