package resultdecoder

import (
	"regexp"
	"strconv"

	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/manifest"
)

var reFieldSpec = regexp.MustCompile(`^(uleb|sleb|vector)\((\d+)\)$`)

// ParseSchema converts an authoring resultSchema object — keyed by a
// program address reference (an alias, a constant name, a literal
// address, or any wrapped in `$addr(...)`), with each field declared
// as `"fieldName": "type(numericKey)"` — into a ProgramSchema, reusing
// the manifest resolver's alias map so program references resolve to
// the exact same canonical address as the manifest's own
// `$addr(...)` (spec.md §4.7).
func ParseSchema(raw map[string]any, aliasMap map[string]string, hrp string) (ProgramSchema, error) {
	out := ProgramSchema{}
	for programRef, fieldsRaw := range raw {
		addr, err := manifest.ResolveAddressLiteral(programRef, aliasMap, hrp)
		if err != nil {
			return nil, err
		}
		fieldsMap, ok := fieldsRaw.(map[string]any)
		if !ok {
			return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "resultSchema[%q] must be an object of field specs", programRef)
		}
		schema := Schema{}
		for fieldName, specRaw := range fieldsMap {
			specStr, ok := specRaw.(string)
			if !ok {
				return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "resultSchema[%q][%q] must be a string like \"uleb(0)\"", programRef, fieldName)
			}
			m := reFieldSpec.FindStringSubmatch(specStr)
			if m == nil {
				return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "resultSchema[%q][%q] = %q does not match type(key)", programRef, fieldName, specStr)
			}
			key, err := strconv.ParseUint(m[2], 10, 64)
			if err != nil {
				return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "resultSchema[%q][%q]: invalid numeric key: %v", programRef, fieldName, err)
			}
			schema[fieldName] = FieldSpec{Key: key, Type: m[1]}
		}
		out[addr.ToHex()] = schema
	}
	return out, nil
}
