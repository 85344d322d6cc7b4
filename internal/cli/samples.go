package cli

import (
	"quiz-challenge-service/internal/app"
	"quiz-challenge-service/internal/domain"
)

// Reserved quiz ids served by the topic generator.
const (
	generatedQuizID = "ai-generated"
	protocolsQuizID = "ai-protocols"
)

func question(id, prompt string, correct int, options ...string) domain.Question {
	return domain.Question{ID: id, Prompt: prompt, Options: options, CorrectIndex: correct}
}

// sampleQuizzes is the built-in catalogue used when no Postgres is configured and by `seed`.
func sampleQuizzes() map[string]domain.Quiz {
	quizzes := []domain.Quiz{
		{
			ID:          "solana-fundamentals",
			Title:       "Solana Fundamentals",
			Description: "Master the basics of Solana blockchain, SPL tokens, and the Solana ecosystem",
			Questions: []domain.Question{
				question("solana-fundamentals-1", "What makes Solana's consensus mechanism unique?", 1,
					"Proof of Work only", "Proof of History + Proof of Stake", "Delegated Proof of Stake", "Proof of Authority"),
				question("solana-fundamentals-2", "What are SPL tokens on Solana?", 1,
					"Smart contract tokens", "Solana Program Library tokens", "Staking pool tokens", "Special purpose tokens"),
				question("solana-fundamentals-3", "What is the native cryptocurrency of Solana?", 0,
					"SOL", "SOLANA", "SLN", "SOLS"),
			},
		},
		{
			ID:          "solana-defi",
			Title:       "Solana DeFi",
			Description: "Explore decentralized finance on Solana: Serum, Raydium, and yield opportunities",
			Questions: []domain.Question{
				question("solana-defi-1", "What is Raydium in the Solana ecosystem?", 1,
					"A wallet", "An automated market maker (AMM)", "A lending protocol", "A bridge"),
				question("solana-defi-2", "What was Serum known for on Solana?", 1,
					"NFT marketplace", "Decentralized exchange (DEX)", "Lending platform", "Staking protocol"),
				question("solana-defi-3", "What is Jupiter in Solana DeFi?", 2,
					"A staking protocol", "A lending platform", "A DEX aggregator", "A yield farming protocol"),
			},
		},
		{
			ID:          "solana-nfts",
			Title:       "Solana NFTs",
			Description: "Learn about NFT creation, marketplaces, and the Metaplex ecosystem on Solana",
			Questions: []domain.Question{
				question("solana-nfts-1", "What is Metaplex in the Solana ecosystem?", 1,
					"A wallet", "An NFT protocol and toolset", "A DeFi protocol", "A gaming platform"),
				question("solana-nfts-2", "Which is a popular Solana NFT marketplace?", 1,
					"OpenSea", "Magic Eden", "Foundation", "SuperRare"),
				question("solana-nfts-3", "What file format is commonly used for Solana NFT metadata?", 1,
					"XML", "JSON", "YAML", "CSV"),
			},
		},
		{
			ID:          "pump-fun",
			Title:       "Pump.fun",
			Description: "Master the leading meme coin launchpad on Solana",
			Questions: []domain.Question{
				question("pump-fun-1", "What is Pump.fun primarily known for?", 1,
					"NFT marketplace", "Meme coin launchpad on Solana", "DeFi lending protocol", "Cross-chain bridge"),
				question("pump-fun-2", "What happens when a token on Pump.fun reaches its bonding curve goal?", 1,
					"It gets burned", "Liquidity migrates to Raydium", "Trading stops", "It becomes an NFT"),
				question("pump-fun-3", "What is the main appeal of Pump.fun for token creators?", 1,
					"High fees", "No upfront liquidity required", "Guaranteed success", "Anonymous trading only"),
			},
		},
		{
			ID:          "marginfi",
			Title:       "MarginFi",
			Description: "Explore the advanced margin trading and lending protocol",
			Questions: []domain.Question{
				question("marginfi-1", "What type of protocol is MarginFi?", 1,
					"DEX aggregator", "Margin trading and lending protocol", "Liquid staking service", "NFT marketplace"),
				question("marginfi-2", "What is a key feature of MarginFi's lending pools?", 1,
					"Fixed interest rates", "Automated risk monitoring", "No liquidation risk", "Unlimited borrowing"),
				question("marginfi-3", "Which tokens can users primarily borrow and lend on MarginFi?", 1,
					"Only SOL", "SOL, USDC, BONK and other tokens", "Only stablecoins", "Only meme coins"),
			},
		},
		{
			ID:          "kamino-finance",
			Title:       "Kamino Finance",
			Description: "Understand the comprehensive DeFi suite with leading TVL on Solana",
			Questions: []domain.Question{
				question("kamino-finance-1", "What is Kamino Finance's primary focus?", 1,
					"Token swapping", "Automated market making and lending", "NFT trading", "Cross-chain bridging"),
				question("kamino-finance-2", "What makes Kamino significant in the Solana ecosystem?", 1,
					"Lowest fees", "Leading TVL among Solana protocols", "Fastest transactions", "Most tokens listed"),
				question("kamino-finance-3", "What type of services does Kamino's DeFi platform offer?", 1,
					"Only lending", "Comprehensive DeFi suite with AMM and lending", "Only staking", "Only yield farming"),
			},
		},
	}
	out := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		out[q.ID] = q
	}
	return out
}

// sampleTopicPools feeds the generator: one random question from each of three shuffled topics.
func sampleTopicPools() map[string]app.GeneratedQuiz {
	general := []domain.Topic{
		{
			Name: "Blockchain Fundamentals",
			Questions: []domain.Question{
				question("blockchain-fundamentals-1", "What is a hash function in blockchain?", 1,
					"A compression algorithm", "A one-way mathematical function", "A database query", "A network protocol"),
				question("blockchain-fundamentals-2", "What is the purpose of a Merkle tree in blockchain?", 1,
					"Store user data", "Efficiently verify large data structures", "Mine new blocks", "Create wallets"),
				question("blockchain-fundamentals-3", "What is a 51% attack?", 1,
					"Stealing 51% of coins", "Controlling majority of network hash rate", "Hacking 51% of nodes", "Owning 51% of tokens"),
			},
		},
		{
			Name: "Web3 Gaming",
			Questions: []domain.Question{
				question("web3-gaming-1", "What are play-to-earn games?", 1,
					"Free games", "Games where players earn real value", "Subscription games", "Offline games"),
				question("web3-gaming-2", "What is GameFi?", 0,
					"Game Finance integration", "Game development tool", "Gaming console", "Game streaming platform"),
				question("web3-gaming-3", "What are in-game NFTs typically used for?", 1,
					"Game graphics", "Unique digital assets ownership", "Game performance", "Player authentication"),
			},
		},
		{
			Name: "Layer 2 Solutions",
			Questions: []domain.Question{
				question("layer-2-solutions-1", "What is the main purpose of Layer 2 solutions?", 1,
					"Replace blockchains", "Scale blockchain transactions", "Mine cryptocurrency", "Store data"),
				question("layer-2-solutions-2", "What is a rollup?", 1,
					"A wallet type", "A scaling solution that bundles transactions", "A consensus mechanism", "A token standard"),
				question("layer-2-solutions-3", "What is the Lightning Network?", 0,
					"Bitcoin Layer 2 solution", "Ethereum scaling solution", "New blockchain", "Mining algorithm"),
			},
		},
		{
			Name: "Metaverse & Virtual Worlds",
			Questions: []domain.Question{
				question("metaverse-virtual-worlds-1", "What is the metaverse in Web3 context?", 1,
					"A game", "Virtual interconnected worlds with ownership", "Social media platform", "Video streaming service"),
				question("metaverse-virtual-worlds-2", "What role do NFTs play in virtual worlds?", 1,
					"Game currency", "Digital land and asset ownership", "Player authentication", "Game graphics"),
				question("metaverse-virtual-worlds-3", "What is virtual land in the metaverse?", 1,
					"Game levels", "Ownable digital real estate", "Server space", "Graphics assets"),
			},
		},
	}
	protocols := []domain.Topic{
		{
			Name: "Pump.fun",
			Questions: []domain.Question{
				question("pump-fun-1", "What is Pump.fun primarily known for?", 1,
					"NFT marketplace", "Meme coin launchpad on Solana", "DeFi lending protocol", "Cross-chain bridge"),
				question("pump-fun-2", "What happens when a token on Pump.fun reaches its bonding curve goal?", 1,
					"It gets burned", "Liquidity migrates to Raydium", "Trading stops", "It becomes an NFT"),
				question("pump-fun-3", "What is the main appeal of Pump.fun for token creators?", 1,
					"High fees", "No upfront liquidity required", "Guaranteed success", "Anonymous trading only"),
			},
		},
		{
			Name: "MarginFi",
			Questions: []domain.Question{
				question("marginfi-1", "What type of protocol is MarginFi?", 1,
					"DEX aggregator", "Margin trading and lending protocol", "Liquid staking service", "NFT marketplace"),
				question("marginfi-2", "What is a key feature of MarginFi's lending pools?", 1,
					"Fixed interest rates", "Automated risk monitoring", "No liquidation risk", "Unlimited borrowing"),
				question("marginfi-3", "Which tokens can users primarily borrow and lend on MarginFi?", 1,
					"Only SOL", "SOL, USDC, BONK and other tokens", "Only stablecoins", "Only meme coins"),
			},
		},
		{
			Name: "Kamino Finance",
			Questions: []domain.Question{
				question("kamino-finance-1", "What is Kamino Finance's primary focus?", 1,
					"Token swapping", "Automated market making and lending", "NFT trading", "Cross-chain bridging"),
				question("kamino-finance-2", "What makes Kamino significant in the Solana ecosystem?", 1,
					"Lowest fees", "Leading TVL among Solana protocols", "Fastest transactions", "Most tokens listed"),
				question("kamino-finance-3", "What type of services does Kamino's DeFi platform offer?", 1,
					"Only lending", "Comprehensive DeFi suite with AMM and lending", "Only staking", "Only yield farming"),
			},
		},
	}
	return map[string]app.GeneratedQuiz{
		generatedQuizID: {Title: "AI Generated Quiz", Topics: general},
		protocolsQuizID: {Title: "Protocol Deep Dive", Topics: protocols},
	}
}
