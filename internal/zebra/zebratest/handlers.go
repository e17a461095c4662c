package zebratest

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"zebracli/internal/zebra"
)

type projectListBody struct {
	Data projectListData `json:"data"`
}

type projectListData struct {
	List []zebra.Project `json:"list"`
}

type timesheetListBody struct {
	Data timesheetListData `json:"data"`
}

type timesheetListData struct {
	List []zebra.Timesheet `json:"list"`
}

type timesheetBody struct {
	Data zebra.Timesheet `json:"data"`
}

type userListBody struct {
	Data userListData `json:"data"`
}

type userListData struct {
	List []zebra.User `json:"list"`
}

type userBody struct {
	Data zebra.User `json:"data"`
}

func registerProjects(api huma.API, s *Server) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body projectListBody `json:"body"`
	}, error) {
		s.mu.Lock()
		list := append([]zebra.Project{}, s.projects...)
		s.mu.Unlock()
		out := &struct {
			Body projectListBody `json:"body"`
		}{}
		out.Body.Data.List = list
		return out, nil
	})
}

func registerTimesheets(api huma.API, s *Server) {
	huma.Register(api, huma.Operation{
		OperationID: "list-timesheets",
		Method:      http.MethodGet,
		Path:        "/timesheets",
		Summary:     "List timesheets",
	}, func(ctx context.Context, input *struct {
		StartDate string `query:"start_date"`
		EndDate   string `query:"end_date"`
	}) (*struct {
		Body timesheetListBody `json:"body"`
	}, error) {
		s.mu.Lock()
		list := []zebra.Timesheet{}
		for _, ts := range s.timesheets {
			if inRange(ts.Date, input.StartDate, input.EndDate) {
				list = append(list, ts)
			}
		}
		s.mu.Unlock()
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		out := &struct {
			Body timesheetListBody `json:"body"`
		}{}
		out.Body.Data.List = list
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-timesheet",
		Method:      http.MethodGet,
		Path:        "/timesheets/{id}",
		Summary:     "Get timesheet",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int `path:"id"`
	}) (*struct {
		Body timesheetBody `json:"body"`
	}, error) {
		ts, ok := s.Timesheet(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("timesheet " + itoa(input.ID) + " not found")
		}
		return &struct {
			Body timesheetBody `json:"body"`
		}{Body: timesheetBody{Data: ts}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-timesheet",
		Method:        http.MethodPost,
		Path:          "/timesheets",
		Summary:       "Create timesheet",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body zebra.Timesheet `json:"body"`
	}) (*struct {
		Body timesheetBody `json:"body"`
	}, error) {
		s.mu.Lock()
		err := s.validate(input.Body)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		ts := input.Body
		ts.ID = 0
		ts.UpdatedAt = s.now().Format(time.RFC3339)
		if ts.UserID == 0 {
			ts.UserID = principal(ctx)
		}
		ts = s.PutTimesheet(ts)
		return &struct {
			Body timesheetBody `json:"body"`
		}{Body: timesheetBody{Data: ts}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-timesheet",
		Method:      http.MethodPut,
		Path:        "/timesheets/{id}",
		Summary:     "Update timesheet",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int             `path:"id"`
		Body zebra.Timesheet `json:"body"`
	}) (*struct {
		Body timesheetBody `json:"body"`
	}, error) {
		existing, ok := s.Timesheet(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("timesheet " + itoa(input.ID) + " not found")
		}
		s.mu.Lock()
		err := s.validate(input.Body)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		ts := input.Body
		ts.ID = input.ID
		ts.UserID = existing.UserID
		ts.UpdatedAt = s.now().Format(time.RFC3339)
		ts = s.PutTimesheet(ts)
		return &struct {
			Body timesheetBody `json:"body"`
		}{Body: timesheetBody{Data: ts}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-timesheet",
		Method:      http.MethodDelete,
		Path:        "/timesheets/{id}",
		Summary:     "Delete timesheet",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int `path:"id"`
	}) (*struct{}, error) {
		if _, ok := s.Timesheet(input.ID); !ok {
			return nil, huma.Error404NotFound("timesheet " + itoa(input.ID) + " not found")
		}
		s.RemoveTimesheet(input.ID)
		return &struct{}{}, nil
	})
}

func registerUsers(api huma.API, s *Server) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body userListBody `json:"body"`
	}, error) {
		s.mu.Lock()
		list := make([]zebra.User, 0, len(s.users))
		for _, u := range s.users {
			list = append(list, u)
		}
		s.mu.Unlock()
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		out := &struct {
			Body userListBody `json:"body"`
		}{}
		out.Body.Data.List = list
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int `path:"id"`
	}) (*struct {
		Body userBody `json:"body"`
	}, error) {
		s.mu.Lock()
		u, ok := s.users[input.ID]
		s.mu.Unlock()
		if !ok {
			return nil, huma.Error404NotFound("user " + itoa(input.ID) + " not found")
		}
		return &struct {
			Body userBody `json:"body"`
		}{Body: userBody{Data: u}}, nil
	})
}
