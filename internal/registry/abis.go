package registry

// RouterABI is the aggregation router surface this module builds calls for.
const RouterABI = `[
	{"name":"swap","type":"function","stateMutability":"payable","inputs":[
		{"name":"caller","type":"address"},
		{"name":"desc","type":"tuple","components":[
			{"name":"srcToken","type":"address"},
			{"name":"dstToken","type":"address"},
			{"name":"srcReceivers","type":"address[]"},
			{"name":"srcAmounts","type":"uint256[]"},
			{"name":"dstReceiver","type":"address"},
			{"name":"amount","type":"uint256"},
			{"name":"minReturnAmount","type":"uint256"},
			{"name":"flags","type":"uint256"},
			{"name":"destTokenFeeData","type":"bytes"}
		]},
		{"name":"executorData","type":"bytes"}
	],"outputs":[{"name":"returnAmount","type":"uint256"},{"name":"gasUsed","type":"uint256"}]}
]`

// ExecutorABI describes the executor payload layouts. Only the argument
// encodings are used; selectors are stripped, so the method names are labels.
const ExecutorABI = `[
	{"name":"directHop","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"data","type":"tuple","components":[
			{"name":"pool","type":"address"},
			{"name":"tokenIn","type":"address"},
			{"name":"tokenOut","type":"address"},
			{"name":"recipient","type":"address"},
			{"name":"collectAmount","type":"uint256"},
			{"name":"limitReturnAmount","type":"uint256"}
		]}
	],"outputs":[]},
	{"name":"opaqueHop","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"data","type":"tuple","components":[
			{"name":"pool","type":"address"},
			{"name":"tokenIn","type":"address"},
			{"name":"tokenOut","type":"address"},
			{"name":"swapAmount","type":"uint256"},
			{"name":"limitReturnAmount","type":"uint256"},
			{"name":"extra","type":"bytes"}
		]}
	],"outputs":[]},
	{"name":"sequence","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"hops","type":"tuple[]","components":[
			{"name":"data","type":"bytes"},
			{"name":"selector","type":"bytes4"}
		]}
	],"outputs":[]},
	{"name":"callBytes","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"desc","type":"tuple","components":[
			{"name":"swapSequences","type":"tuple[][]","components":[
				{"name":"data","type":"bytes"},
				{"name":"selector","type":"bytes4"}
			]},
			{"name":"tokenIn","type":"address"},
			{"name":"tokenOut","type":"address"},
			{"name":"minTotalAmountOut","type":"uint256"},
			{"name":"to","type":"address"},
			{"name":"deadline","type":"uint256"},
			{"name":"destTokenFeeData","type":"bytes"}
		]}
	],"outputs":[]},
	{"name":"simpleSwap","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"data","type":"tuple","components":[
			{"name":"firstPools","type":"address[]"},
			{"name":"firstSwapAmounts","type":"uint256[]"},
			{"name":"swapDatas","type":"bytes[]"},
			{"name":"deadline","type":"uint256"},
			{"name":"destTokenFeeData","type":"bytes"}
		]}
	],"outputs":[]},
	{"name":"feeConfig","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"feeReceiver","type":"address"},
		{"name":"isInBps","type":"bool"},
		{"name":"feeAmount","type":"uint256"}
	],"outputs":[]}
]`

// Executor entrypoints, keyed by exchange family. The hop selector tells the
// executor which entrypoint decodes the hop data.
const (
	DirectHopSignature  = "executeUniSwap(uint256,bytes)"
	GenericHopSignature = "executeGeneric(uint256,bytes)"
)

var opaqueHopSignatures = map[string]string{
	"curve":             "executeCurve(uint256,bytes)",
	"ellipsis":          "executeCurve(uint256,bytes)",
	"balancer":          "executeBalV2(uint256,bytes)",
	"beethovenx":        "executeBalV2(uint256,bytes)",
	"dodo":              "executeDODO(uint256,bytes)",
	"kyberswap-elastic": "executeKSElastic(uint256,bytes)",
	"uniswapv3":         "executeUniV3ProMMNew(uint256,bytes)",
	"dmm":               "executeKSClassic(uint256,bytes)",
	"kyberswap":         "executeKSClassic(uint256,bytes)",
}

// OpaqueHopSignature returns the executor entrypoint for an opaque exchange.
func OpaqueHopSignature(exchange string) string {
	if sig, ok := opaqueHopSignatures[exchange]; ok {
		return sig
	}
	return GenericHopSignature
}
