package contracts

type (
	// ContractName is the logical name of a contract known to the tool.
	ContractName string

	// Definition ties a logical contract to its manifest entry and interface file.
	Definition struct {
		// ManifestKey is the name the deploy scripts record the address under.
		ManifestKey string
		abiFile     string
	}
)

const (
	ContractNameStoryProtocol      ContractName = "StoryProtocol"
	ContractNameIPOrgController    ContractName = "IPOrgController"
	ContractNameRegistrationModule ContractName = "RegistrationModule"
)

// Contracts lists every contract the commands interact with. Upgradeable
// contracts are reached through their proxy.
var Contracts = map[ContractName]Definition{
	ContractNameStoryProtocol: {
		ManifestKey: "StoryProtocol",
		abiFile:     "abi/StoryProtocol.json",
	},
	ContractNameIPOrgController: {
		ManifestKey: "IPOrgController-Proxy",
		abiFile:     "abi/IPOrgController.json",
	},
	ContractNameRegistrationModule: {
		ManifestKey: "RegistrationModule",
		abiFile:     "abi/RegistrationModule.json",
	},
}
