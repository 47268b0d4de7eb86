package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/qfund/qfund/codec"
	"github.com/qfund/qfund/core/types"
	"github.com/qfund/qfund/merkle"
	"github.com/qfund/qfund/zkvm"
)

var errInvalidClaim = errors.New("claim does not match root")

const (
	flagDonations = "donations"
	flagOut       = "out"
	flagInput     = "input"
	flagJournal   = "journal"
	flagDump      = "dump"
	flagGrant     = "grant"
	flagRoot      = "root"
	flagAmount    = "amount"
	flagProof     = "proof"
)

// donationFile is the JSON form of a guest input. Amounts are decimal or
// 0x-prefixed hex strings so that full 256-bit values survive JSON.
type donationFile struct {
	Donations      [][]string `json:"donations"`
	MatchingAmount string     `json:"matching_amount"`
}

func parseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}

func (f *donationFile) toInput() (types.DonationSet, *uint256.Int, error) {
	ds := make(types.DonationSet, len(f.Donations))
	for i, grant := range f.Donations {
		ds[i] = make(types.Grant, len(grant))
		for j, s := range grant {
			v, err := parseAmount(s)
			if err != nil {
				return nil, nil, fmt.Errorf("donation %d of grant %d: %w", j, i, err)
			}
			ds[i][j] = v
		}
	}
	m, err := parseAmount(f.MatchingAmount)
	if err != nil {
		return nil, nil, fmt.Errorf("matching amount: %w", err)
	}
	return ds, m, nil
}

func encodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     flagDonations,
			Aliases:  []string{"d"},
			Usage:    "JSON donation file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     flagOut,
			Aliases:  []string{"o"},
			Usage:    "framed guest input to write",
			Required: true,
		},
	}
}

func (h *host) encodeCmd(c *cli.Context) error {
	data, err := os.ReadFile(c.String(flagDonations))
	if err != nil {
		return err
	}
	var f donationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse %s: %w", c.String(flagDonations), err)
	}
	ds, m, err := f.toInput()
	if err != nil {
		return err
	}
	payload, err := codec.EncodeInput(ds, m)
	if err != nil {
		return err
	}
	framed, err := codec.Frame(payload)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String(flagOut), framed, 0644); err != nil {
		return err
	}
	h.log.Info("guest input written", "path", c.String(flagOut),
		"grants", len(ds), "donations", ds.NumDonations(), "bytes", len(framed))
	return nil
}

func (h *host) newGuest() (*zkvm.Guest, error) {
	return zkvm.NewGuest(zkvm.Options{
		IndexWidth:   h.cfg.IndexWidth,
		MaxInputSize: h.cfg.MaxInputSize,
	})
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     flagInput,
		Aliases:  []string{"i"},
		Usage:    "framed guest input",
		Required: true,
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		inputFlag(),
		&cli.StringFlag{
			Name:    flagJournal,
			Aliases: []string{"j"},
			Usage:   "file to write the journal to",
		},
		&cli.BoolFlag{
			Name:  flagDump,
			Usage: "dump the full execution result",
		},
	}
}

func (h *host) runCmd(c *cli.Context) error {
	g, err := h.newGuest()
	if err != nil {
		return err
	}
	f, err := os.Open(c.String(flagInput))
	if err != nil {
		return err
	}
	defer f.Close()

	sink := new(zkvm.MemorySink)
	res, err := g.Run(zkvm.NewReaderInput(f), sink)
	if err != nil {
		return err
	}

	if path := c.String(flagJournal); path != "" {
		if err := os.WriteFile(path, sink.Journal(), 0644); err != nil {
			return err
		}
		h.log.Info("journal written", "path", path)
	}

	fmt.Fprintf(h.stdout, "root     %s\n", res.Root.Hex())
	fmt.Fprintf(h.stdout, "journal  %s\n", hexutil.Encode(sink.Journal()))
	for i, amount := range res.Distribution {
		fmt.Fprintf(h.stdout, "grant %-3d %s\n", i, amount.Dec())
	}
	if c.Bool(flagDump) {
		spew.Fdump(h.stdout, res)
	}
	return nil
}

func proofFlags() []cli.Flag {
	return []cli.Flag{
		inputFlag(),
		&cli.UintFlag{
			Name:     flagGrant,
			Aliases:  []string{"g"},
			Usage:    "grant index",
			Required: true,
		},
	}
}

// claim is the JSON output of the proof command.
type claim struct {
	Grant      uint     `json:"grant"`
	Amount     string   `json:"amount"`
	IndexWidth int      `json:"index_width"`
	Leaf       string   `json:"leaf"`
	Root       string   `json:"root"`
	Proof      []string `json:"proof"`
}

func (h *host) proofCmd(c *cli.Context) error {
	g, err := h.newGuest()
	if err != nil {
		return err
	}
	f, err := os.Open(c.String(flagInput))
	if err != nil {
		return err
	}
	defer f.Close()

	payload, err := zkvm.ReadInput(zkvm.NewReaderInput(f), h.cfg.MaxInputSize)
	if err != nil {
		return err
	}
	res, err := g.Execute(payload)
	if err != nil {
		return err
	}
	tree, err := merkle.NewTree(res.Distribution, h.cfg.IndexWidth)
	if err != nil {
		return err
	}

	grant := c.Uint(flagGrant)
	if grant >= uint(tree.Len()) {
		return fmt.Errorf("grant %d out of range, input has %d grants", grant, tree.Len())
	}
	leaf, err := tree.Leaf(int(grant))
	if err != nil {
		return err
	}
	proof, err := tree.Proof(int(grant))
	if err != nil {
		return err
	}

	out := claim{
		Grant:      grant,
		Amount:     res.Distribution[grant].Dec(),
		IndexWidth: tree.IndexWidth(),
		Leaf:       hexutil.Encode(leaf),
		Root:       tree.Root().Hex(),
		Proof:      make([]string, len(proof)),
	}
	for i, p := range proof {
		out.Proof[i] = p.Hex()
	}
	enc := json.NewEncoder(h.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func verifyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     flagRoot,
			Usage:    "committed root (0x-prefixed hex)",
			Required: true,
		},
		&cli.UintFlag{
			Name:     flagGrant,
			Aliases:  []string{"g"},
			Usage:    "grant index",
			Required: true,
		},
		&cli.StringFlag{
			Name:     flagAmount,
			Usage:    "claimed amount (decimal or 0x hex)",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  flagProof,
			Usage: "proof hashes, leaf level first",
		},
	}
}

func decodeHash(s string) (types.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return types.Hash{}, fmt.Errorf("%q: %w", s, err)
	}
	if len(b) != types.HashLength {
		return types.Hash{}, fmt.Errorf("%q: want %d bytes, have %d", s, types.HashLength, len(b))
	}
	return types.BytesToHash(b), nil
}

func (h *host) verifyCmd(c *cli.Context) error {
	root, err := decodeHash(c.String(flagRoot))
	if err != nil {
		return fmt.Errorf("root %w", err)
	}
	amount, err := parseAmount(c.String(flagAmount))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	var proof []types.Hash
	for _, s := range c.StringSlice(flagProof) {
		p, err := decodeHash(s)
		if err != nil {
			return fmt.Errorf("proof %w", err)
		}
		proof = append(proof, p)
	}

	ok, err := merkle.VerifyClaim(root, uint64(c.Uint(flagGrant)), amount, h.cfg.IndexWidth, proof)
	if err != nil {
		return err
	}
	if !ok {
		return errInvalidClaim
	}
	fmt.Fprintln(h.stdout, "valid")
	return nil
}
