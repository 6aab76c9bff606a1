package oracle

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const getFeedByIdABIJSON = `[
  {"inputs": [{"internalType": "bytes21", "name": "_feedId", "type": "bytes21"}], "name": "getFeedById", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}, {"internalType": "int8", "name": "", "type": "int8"}, {"internalType": "uint64", "name": "", "type": "uint64"}], "stateMutability": "payable", "type": "function"}
]`

var (
	feedABI    abi.ABI
	feedOnce   sync.Once
	feedABIErr error
)

func getFeedABI() (abi.ABI, error) {
	feedOnce.Do(func() {
		feedABI, feedABIErr = abi.JSON(strings.NewReader(getFeedByIdABIJSON))
	})
	return feedABI, feedABIErr
}

// feedCategoryCrypto is the FTSO feed id category prefix for crypto pairs.
const feedCategoryCrypto = 0x01

// FeedID builds the 21-byte FTSO feed identifier for a SYMBOL/USD pair.
func FeedID(symbol string) ([21]byte, error) {
	var id [21]byte
	name := symbol + "/USD"
	if symbol == "" || len(name) > 20 {
		return id, fmt.Errorf("invalid feed symbol %q", symbol)
	}
	id[0] = feedCategoryCrypto
	copy(id[1:], name)
	return id, nil
}

// Quote is one oracle price reading.
type Quote struct {
	Symbol    string
	PriceUSD  float64
	Timestamp time.Time
}

// cachedQuote pairs a quote with the time it was fetched. The TTL runs
// against the fetch time, not the feed's own timestamp: a feed that updates
// rarely must still be cacheable.
type cachedQuote struct {
	quote     Quote
	fetchedAt time.Time
}

// Client reads FTSO price feeds over an EVM RPC endpoint.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	ftsoAddr  common.Address

	mu         sync.RWMutex
	quoteCache map[string]cachedQuote
	cacheTTL   time.Duration
}

// NewClient dials the RPC URL and targets the given FTSO contract address.
func NewClient(ctx context.Context, rpcURL string, ftsoAddress string, cacheTTL time.Duration) (*Client, error) {
	if !common.IsHexAddress(ftsoAddress) {
		return nil, fmt.Errorf("invalid ftso address %q", ftsoAddress)
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient:  rpcClient,
		ethClient:  ethclient.NewClient(rpcClient),
		ftsoAddr:   common.HexToAddress(ftsoAddress),
		quoteCache: make(map[string]cachedQuote),
		cacheTTL:   cacheTTL,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// PriceUSD returns the oracle price for SYMBOL/USD, serving from the cache
// while the last fetch is younger than the configured TTL.
func (c *Client) PriceUSD(ctx context.Context, symbol string) (Quote, error) {
	c.mu.RLock()
	cached, ok := c.quoteCache[symbol]
	c.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < c.cacheTTL {
		return cached.quote, nil
	}

	quote, err := c.fetchQuote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.quoteCache[symbol] = cachedQuote{quote: quote, fetchedAt: time.Now()}
	c.mu.Unlock()

	return quote, nil
}

func (c *Client) fetchQuote(ctx context.Context, symbol string) (Quote, error) {
	id, err := FeedID(symbol)
	if err != nil {
		return Quote{}, err
	}

	ftso, err := getFeedABI()
	if err != nil {
		return Quote{}, err
	}

	data, err := ftso.Pack("getFeedById", id)
	if err != nil {
		return Quote{}, fmt.Errorf("pack getFeedById: %w", err)
	}

	msg := ethereum.CallMsg{To: &c.ftsoAddr, Data: data}
	resp, err := c.ethClient.CallContract(ctx, msg, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("call getFeedById: %w", err)
	}

	values, err := ftso.Unpack("getFeedById", resp)
	if err != nil {
		return Quote{}, fmt.Errorf("unpack getFeedById: %w", err)
	}
	if len(values) != 3 {
		return Quote{}, fmt.Errorf("getFeedById return size %d", len(values))
	}

	raw, ok := values[0].(*big.Int)
	if !ok {
		return Quote{}, fmt.Errorf("getFeedById value type %T", values[0])
	}
	decimals, ok := values[1].(int8)
	if !ok {
		return Quote{}, fmt.Errorf("getFeedById decimals type %T", values[1])
	}
	ts, ok := values[2].(uint64)
	if !ok {
		return Quote{}, fmt.Errorf("getFeedById timestamp type %T", values[2])
	}

	price, err := ScalePrice(raw, decimals)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Symbol:    symbol,
		PriceUSD:  price,
		Timestamp: time.Unix(int64(ts), 0).UTC(),
	}, nil
}

// ScalePrice converts a raw feed value and signed decimals into a float price.
func ScalePrice(raw *big.Int, decimals int8) (float64, error) {
	if raw == nil {
		return 0, fmt.Errorf("nil feed value")
	}
	value, _ := new(big.Float).SetInt(raw).Float64()
	scaled := value * math.Pow(10, -float64(decimals))
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return 0, fmt.Errorf("feed value out of range")
	}
	return scaled, nil
}
