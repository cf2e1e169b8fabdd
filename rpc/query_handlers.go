package rpc

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

type addressQuery struct {
	Address string `json:"address"`
}

type tokenQuery struct {
	Collection string `json:"collection"`
	TokenID    uint64 `json:"tokenId"`
	Price      string `json:"price,omitempty"`
}

type ownerQuery struct {
	Collection string `json:"collection"`
	Owner      string `json:"owner"`
	Operator   string `json:"operator,omitempty"`
}

type allowanceQuery struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type offerQuery struct {
	Asset   string `json:"asset"`
	TokenID uint64 `json:"tokenId"`
	Offerer string `json:"offerer"`
}

type roleQuery struct {
	Role string `json:"role"`
}

// query adapts a typed read handler to the method table.
func query[Q any](fn func(q Q) (interface{}, *RPCError)) methodHandler {
	return func(_ context.Context, raw json.RawMessage) (interface{}, *RPCError) {
		var q Q
		if err := decodeObject(raw, &q); err != nil {
			return nil, invalidParams(err)
		}
		return fn(q)
	}
}

func (s *Server) registerQueries() {
	s.methods["rpc_methods"] = query(func(struct{}) (interface{}, *RPCError) {
		out := make([]string, 0, len(s.methods))
		for name := range s.methods {
			out = append(out, name)
		}
		sort.Strings(out)
		return out, nil
	})
	s.methods["node_time"] = query(func(struct{}) (interface{}, *RPCError) {
		return map[string]int64{"now": s.node.Now()}, nil
	})
	s.methods["node_moduleAddress"] = query(func(q struct {
		Module string `json:"module"`
	}) (interface{}, *RPCError) {
		module := strings.TrimSpace(q.Module)
		if module == "" {
			return nil, &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: "module required"}
		}
		return formatAddr(s.node.ModuleAddress(module)), nil
	})
	s.methods["account_get"] = query(s.accountGet)

	s.methods["registry_owner"] = query(func(struct{}) (interface{}, *RPCError) {
		owner, err := s.node.RegistryOwner()
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return formatAddr(owner), nil
	})
	s.methods["registry_lookup"] = query(func(q roleQuery) (interface{}, *RPCError) {
		addr, err := s.node.RegistryLookup(q.Role)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return formatOptionalAddr(addr), nil
	})
	s.methods["registry_entries"] = query(func(struct{}) (interface{}, *RPCError) {
		entries, err := s.node.RegistryEntries()
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		out := make(map[string]string, len(entries))
		for role, addr := range entries {
			out[role] = formatOptionalAddr(addr)
		}
		return out, nil
	})

	s.methods["token_metadata"] = query(func(struct{}) (interface{}, *RPCError) {
		meta, err := s.node.TokenMetadata()
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newTokenMetadataResult(meta), nil
	})
	s.methods["token_balanceOf"] = query(func(q addressQuery) (interface{}, *RPCError) {
		holder, err := parseAddr("address", q.Address)
		if err != nil {
			return nil, invalidParams(err)
		}
		balance, err := s.node.TokenBalance(holder)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return formatAmount(balance), nil
	})
	s.methods["token_allowance"] = query(s.tokenAllowance)

	s.methods["nft_collection"] = query(func(q tokenQuery) (interface{}, *RPCError) {
		collection, err := parseAddr("collection", q.Collection)
		if err != nil {
			return nil, invalidParams(err)
		}
		c, err := s.node.Collection(collection)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newCollectionResult(c), nil
	})
	s.methods["nft_token"] = query(func(q tokenQuery) (interface{}, *RPCError) {
		collection, err := parseAddr("collection", q.Collection)
		if err != nil {
			return nil, invalidParams(err)
		}
		t, err := s.node.NFTToken(collection, q.TokenID)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newNFTResult(t), nil
	})
	s.methods["nft_ownerOf"] = query(func(q tokenQuery) (interface{}, *RPCError) {
		collection, err := parseAddr("collection", q.Collection)
		if err != nil {
			return nil, invalidParams(err)
		}
		owner, err := s.node.NFTOwnerOf(collection, q.TokenID)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return formatAddr(owner), nil
	})
	s.methods["nft_getApproved"] = query(func(q tokenQuery) (interface{}, *RPCError) {
		collection, err := parseAddr("collection", q.Collection)
		if err != nil {
			return nil, invalidParams(err)
		}
		approved, err := s.node.NFTGetApproved(collection, q.TokenID)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return formatOptionalAddr(approved), nil
	})
	s.methods["nft_royaltyInfo"] = query(s.nftRoyaltyInfo)
	s.methods["nft_balanceOf"] = query(func(q ownerQuery) (interface{}, *RPCError) {
		collection, err := parseAddr("collection", q.Collection)
		if err != nil {
			return nil, invalidParams(err)
		}
		owner, err := parseAddr("owner", q.Owner)
		if err != nil {
			return nil, invalidParams(err)
		}
		count, err := s.node.NFTBalanceOf(collection, owner)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return count, nil
	})
	s.methods["nft_isApprovedForAll"] = query(func(q ownerQuery) (interface{}, *RPCError) {
		collection, err := parseAddr("collection", q.Collection)
		if err != nil {
			return nil, invalidParams(err)
		}
		owner, err := parseAddr("owner", q.Owner)
		if err != nil {
			return nil, invalidParams(err)
		}
		operator, err := parseAddr("operator", q.Operator)
		if err != nil {
			return nil, invalidParams(err)
		}
		approved, err := s.node.NFTIsApprovedForAll(collection, owner, operator)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return approved, nil
	})

	s.methods["factory_config"] = query(func(struct{}) (interface{}, *RPCError) {
		cfg, err := s.node.FactoryConfig()
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newFactoryConfigResult(cfg), nil
	})
	s.methods["factory_collections"] = query(func(q addressQuery) (interface{}, *RPCError) {
		owner, err := parseAddr("address", q.Address)
		if err != nil {
			return nil, invalidParams(err)
		}
		collections, err := s.node.FactoryCollections(owner)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		out := make([]string, 0, len(collections))
		for _, addr := range collections {
			out = append(out, formatAddr(addr))
		}
		return out, nil
	})

	s.methods["marketplace_config"] = query(func(struct{}) (interface{}, *RPCError) {
		cfg, err := s.node.MarketConfig()
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newMarketConfigResult(cfg), nil
	})
	s.methods["marketplace_listing"] = query(func(q itemArgs) (interface{}, *RPCError) {
		item, err := q.parse()
		if err != nil {
			return nil, invalidParams(err)
		}
		listing, err := s.node.MarketListing(item.Asset, item.TokenID)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newListingResult(listing), nil
	})
	s.methods["marketplace_offer"] = query(func(q offerQuery) (interface{}, *RPCError) {
		params, err := acceptOfferArgs(q).parse()
		if err != nil {
			return nil, invalidParams(err)
		}
		offer, err := s.node.MarketOffer(params.Asset, params.TokenID, params.Offerer)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newOfferResult(offer), nil
	})

	s.methods["auction_config"] = query(func(struct{}) (interface{}, *RPCError) {
		cfg, err := s.node.AuctionConfig()
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newAuctionConfigResult(cfg), nil
	})
	s.methods["auction_get"] = query(func(q itemArgs) (interface{}, *RPCError) {
		item, err := q.parse()
		if err != nil {
			return nil, invalidParams(err)
		}
		a, err := s.node.Auction(item.Asset, item.TokenID)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newAuctionResult(a), nil
	})
	s.methods["auction_highestBid"] = query(func(q itemArgs) (interface{}, *RPCError) {
		item, err := q.parse()
		if err != nil {
			return nil, invalidParams(err)
		}
		bid, err := s.node.AuctionHighestBid(item.Asset, item.TokenID)
		if err != nil {
			return nil, rpcErrorFrom(err)
		}
		return newBidResult(bid), nil
	})
}

func (s *Server) accountGet(q addressQuery) (interface{}, *RPCError) {
	addr, err := parseAddr("address", q.Address)
	if err != nil {
		return nil, invalidParams(err)
	}
	account, err := s.node.Account(addr)
	if err != nil {
		return nil, rpcErrorFrom(err)
	}
	return &AccountResult{
		Address: formatAddr(addr),
		Balance: formatAmount(account.Balance),
		Nonce:   account.Nonce,
	}, nil
}

func (s *Server) tokenAllowance(q allowanceQuery) (interface{}, *RPCError) {
	owner, err := parseAddr("owner", q.Owner)
	if err != nil {
		return nil, invalidParams(err)
	}
	spender, err := parseAddr("spender", q.Spender)
	if err != nil {
		return nil, invalidParams(err)
	}
	allowance, err := s.node.TokenAllowance(owner, spender)
	if err != nil {
		return nil, rpcErrorFrom(err)
	}
	return formatAmount(allowance), nil
}

func (s *Server) nftRoyaltyInfo(q tokenQuery) (interface{}, *RPCError) {
	collection, err := parseAddr("collection", q.Collection)
	if err != nil {
		return nil, invalidParams(err)
	}
	price, err := parseAmount("price", q.Price)
	if err != nil {
		return nil, invalidParams(err)
	}
	receiver, amount, err := s.node.NFTRoyaltyInfo(collection, q.TokenID, price)
	if err != nil {
		return nil, rpcErrorFrom(err)
	}
	return &RoyaltyInfoResult{Receiver: formatOptionalAddr(receiver), Amount: formatAmount(amount)}, nil
}
