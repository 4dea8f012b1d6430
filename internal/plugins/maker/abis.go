package maker

const ilkRegistryABI = `[
	{"type":"function","name":"list","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"ilkData","stateMutability":"view","inputs":[{"name":"","type":"bytes32"}],"outputs":[
		{"name":"pos","type":"uint96"},
		{"name":"join","type":"address"},
		{"name":"gem","type":"address"},
		{"name":"dec","type":"uint8"},
		{"name":"class","type":"uint96"},
		{"name":"pip","type":"address"},
		{"name":"xlip","type":"address"},
		{"name":"name","type":"string"},
		{"name":"symbol","type":"string"}
	]}
]`

const vatABI = `[
	{"type":"function","name":"ilks","stateMutability":"view","inputs":[{"name":"","type":"bytes32"}],"outputs":[
		{"name":"Art","type":"uint256"},
		{"name":"rate","type":"uint256"},
		{"name":"spot","type":"uint256"},
		{"name":"line","type":"uint256"},
		{"name":"dust","type":"uint256"}
	]},
	{"type":"function","name":"urns","stateMutability":"view","inputs":[{"name":"","type":"bytes32"},{"name":"","type":"address"}],"outputs":[
		{"name":"ink","type":"uint256"},
		{"name":"art","type":"uint256"}
	]}
]`

const spotterABI = `[
	{"type":"function","name":"ilks","stateMutability":"view","inputs":[{"name":"","type":"bytes32"}],"outputs":[
		{"name":"pip","type":"address"},
		{"name":"mat","type":"uint256"}
	]}
]`

const getCdpsABI = `[
	{"type":"function","name":"getCdpsAsc","stateMutability":"view","inputs":[{"name":"manager","type":"address"},{"name":"guy","type":"address"}],"outputs":[
		{"name":"ids","type":"uint256[]"},
		{"name":"urns","type":"address[]"},
		{"name":"ilks","type":"bytes32[]"}
	]}
]`

const proxyRegistryABI = `[
	{"type":"function","name":"proxies","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"address"}]}
]`
