package api

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}

type ListResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
	Total  int    `json:"total"`
}

func newList[T any](data []T, total int) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Object: "list", Data: data, Total: total}
}

type FieldInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Width  int    `json:"width"`
	Enum   string `json:"enum,omitempty"`
	Flags  string `json:"flags,omitempty"`
	Target string `json:"target,omitempty"`
}

type RelationInfo struct {
	Name      string   `json:"name"`
	Target    string   `json:"target"`
	Keys      []string `json:"keys"`
	Path      []string `json:"path,omitempty"`
	Many      bool     `json:"many"`
	Uncertain string   `json:"uncertain,omitempty"`
}

type TableInfo struct {
	Object     string         `json:"object"`
	Name       string         `json:"name"`
	Schema     string         `json:"schema"`
	Rows       int            `json:"rows"`
	RowLength  int            `json:"row_length"`
	Offset     int64          `json:"offset"`
	PrimaryKey []string       `json:"primary_key"`
	Fields     []FieldInfo    `json:"fields,omitempty"`
	Relations  []RelationInfo `json:"relations,omitempty"`
}

type Row struct {
	Object string         `json:"object"`
	Table  string         `json:"table"`
	Index  int            `json:"index"`
	Values map[string]any `json:"values"`
}

type PatchRowRequest struct {
	Values map[string]any `json:"values"`
}

type RelationResponse struct {
	Object    string `json:"object"`
	Relation  string `json:"relation"`
	Target    string `json:"target"`
	Many      bool   `json:"many"`
	Uncertain string `json:"uncertain,omitempty"`
	Value     any    `json:"value"`
}

type SetRelationRequest struct {
	Value any `json:"value"`
}

type HexResponse struct {
	Object string `json:"object"`
	Table  string `json:"table"`
	Index  int    `json:"index"`
	Offset int64  `json:"offset"`
	Length int    `json:"length"`
	Hex    string `json:"hex"`
	Dump   string `json:"dump"`
}

type SaveResponse struct {
	Object string `json:"object"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Edits  int    `json:"edits"`
}

type DiagnosticEntry struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Distinct int    `json:"distinct"`
}
