package main

import (
	"encoding/hex"
	"encoding/json"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/resultdecoder"
	"github.com/LEA-Blockchain/ltm/txcodec"
)

// renderedInstruction is the JSON-friendly projection of a
// txcodec.DecodedInstruction.
type renderedInstruction struct {
	Kind    string `json:"kind"`
	Uleb    string `json:"uleb,omitempty"`
	Sleb    string `json:"sleb,omitempty"`
	Vector  string `json:"vectorHex,omitempty"`
	Comment string `json:"comment,omitempty"`
	Pubset  *struct {
		Ed25519Pk   string `json:"ed25519Pk"`
		Falcon512Pk string `json:"falcon512Pk"`
		Address     string `json:"address"`
	} `json:"pubset,omitempty"`
}

type renderedInvocation struct {
	TargetAddress int                   `json:"targetAddress"`
	Instructions  []renderedInstruction `json:"instructions"`
}

type renderedSignature struct {
	Ed25519Hex   string `json:"ed25519Hex"`
	Falcon512Hex string `json:"falcon512Hex"`
}

type renderedTx struct {
	Pod         string               `json:"pod"`
	Version     uint64               `json:"version"`
	Sequence    string               `json:"sequence"`
	GasLimit    string               `json:"gasLimit"`
	GasPrice    string               `json:"gasPrice"`
	Addresses   []string             `json:"addresses"`
	Invocations []renderedInvocation `json:"invocations"`
	Signatures  []renderedSignature  `json:"signatures"`
	BaseHashHex string               `json:"baseHashHex"`
}

func renderDecoded(d *txcodec.Decoded, hrp string) ([]byte, error) {
	out := renderedTx{
		Pod:      addrString(d.Pod, hrp),
		Version:  d.Version,
		Sequence: d.Sequence.String(),
		GasLimit: d.GasLimit.String(),
		GasPrice: d.GasPrice.String(),
	}
	for _, a := range d.Addresses {
		out.Addresses = append(out.Addresses, addrString(a, hrp))
	}
	for _, inv := range d.Invocations {
		ri := renderedInvocation{TargetAddress: inv.TargetAddress}
		for _, instr := range inv.Instructions {
			rinstr := renderedInstruction{Kind: instr.Kind, Comment: instr.Comment}
			if instr.Uleb != nil {
				rinstr.Uleb = instr.Uleb.String()
			}
			if instr.Sleb != nil {
				rinstr.Sleb = instr.Sleb.String()
			}
			if instr.Vector != nil {
				rinstr.Vector = hex.EncodeToString(instr.Vector)
			}
			if instr.Pubset != nil {
				rinstr.Pubset = &struct {
					Ed25519Pk   string `json:"ed25519Pk"`
					Falcon512Pk string `json:"falcon512Pk"`
					Address     string `json:"address"`
				}{
					Ed25519Pk:   hex.EncodeToString(instr.Pubset.Ed25519.PK),
					Falcon512Pk: hex.EncodeToString(instr.Pubset.Falcon512.PK),
					Address:     addrString(instr.Pubset.Address, hrp),
				}
			}
			ri.Instructions = append(ri.Instructions, rinstr)
		}
		out.Invocations = append(out.Invocations, ri)
	}
	for _, sig := range d.Signatures {
		out.Signatures = append(out.Signatures, renderedSignature{
			Ed25519Hex:   hex.EncodeToString(sig.Ed25519),
			Falcon512Hex: hex.EncodeToString(sig.Falcon512),
		})
	}
	base := d.BaseHash()
	out.BaseHashHex = hex.EncodeToString(base[:])
	return json.MarshalIndent(out, "", "  ")
}

func addrString(a addr.Address, hrp string) string {
	if bech, err := a.ToBech32(hrp); err == nil {
		return bech
	}
	return a.ToHex()
}

type renderedValue struct {
	Kind   string `json:"kind"`
	Uleb   string `json:"uleb,omitempty"`
	Sleb   string `json:"sleb,omitempty"`
	Vector string `json:"vectorHex,omitempty"`
}

type renderedProgramResult struct {
	ProgramID string                   `json:"programId"`
	Fields    map[string]renderedValue `json:"fields"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

func renderResult(r resultdecoder.Result) ([]byte, error) {
	out := map[string]renderedProgramResult{}
	for id, pr := range r {
		rpr := renderedProgramResult{ProgramID: id, Fields: map[string]renderedValue{}, Warnings: pr.Warnings}
		for name, v := range pr.Fields {
			rv := renderedValue{Kind: v.Kind}
			if v.Uleb != nil {
				rv.Uleb = v.Uleb.String()
			}
			if v.Sleb != nil {
				rv.Sleb = v.Sleb.String()
			}
			if v.Vector != nil {
				rv.Vector = hex.EncodeToString(v.Vector)
			}
			rpr.Fields[name] = rv
		}
		out[id] = rpr
	}
	return json.MarshalIndent(out, "", "  ")
}
