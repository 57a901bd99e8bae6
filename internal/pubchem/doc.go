// Package pubchem implements compound.Service against PubChem's PUG-REST API.
//
// Names are resolved to their first matching CID and then fetched in full.
// Records are read from PC_Compounds[0]: formula, molecular weight, IUPAC
// name, SMILES and InChIKey. A 404 from PubChem maps to compound.ErrNotFound;
// any other failure (transport error, timeout, non-2xx status, unexpected JSON
// shape) maps to compound.ErrUnavailable.
//
// Every request passes through a token-bucket limiter and is bounded by the
// configured timeout.
package pubchem
