package tools

import "github.com/nexxia-ai/nimbus/notebook"

// Cell templates merged into the user's notebook by the ingestion and SPI
// tools. Cells flagged need_format carry {placeholder} parameters; the
// dependency cells are flagged check_import so repeated template application
// does not duplicate the import block.

func dependencyCells() []notebook.Cell {
	return []notebook.Cell{
		notebook.NewCodeCell(`
			# Section "Dependencies"

			%%capture

			import os
			import json
			import datetime

			import numpy as np
			import pandas as pd

			!pip install zarr xarray
			import xarray as xr

			!pip install s3fs
			import s3fs

			!pip install "cdsapi>=0.7.4"
			import cdsapi

			!pip install cartopy
			import cartopy.crs as ccrs
			import cartopy.feature as cfeature
		`, map[string]any{notebook.MetaCheckImport: true}),
	}
}

func cdsForecastCells() []notebook.Cell {
	cells := dependencyCells()
	cells = append(cells,
		notebook.NewMarkdownCell(`
			## CDS seasonal forecast ingestion

			Retrieve {cds_varname} from the Climate Data Store and save it as zarr.
		`, map[string]any{notebook.MetaNeedFormat: true}),
		notebook.NewCodeCell(`
			# Section "Parameters"

			forecast_variables = {forecast_variables}
			area = {area}
			init_time = '{init_time}'
			lead_time = '{lead_time}'
			zarr_output = '{zarr_output}'
		`, map[string]any{notebook.MetaNeedFormat: true}),
		notebook.NewCodeCell(`
			# Section "Data retrieval"

			def month_span(start, end):
			    sy, sm = int(start[:4]), int(start[5:7])
			    ey, em = int(end[:4]), int(end[5:7])
			    return max(1, (ey - sy) * 12 + em - sm)

			client = cdsapi.Client()
			dataset = 'seasonal-original-single-levels' if '{cds_varname}' != 'glofas' else 'cems-glofas-seasonal'
			request = {
			    'variable': ['{cds_varname}'],
			    'originating_centre': 'ecmwf',
			    'system': '51',
			    'year': [init_time.split('-')[0]],
			    'month': [init_time.split('-')[1]],
			    'day': ['01'],
			    'leadtime_month': [str(m + 1) for m in range(month_span(init_time, lead_time))],
			    'area': [area[3], area[0], area[1], area[2]],
			    'format': 'grib',
			}
			client.retrieve(dataset, request, '{icisk_varname}.grib')
		`, map[string]any{notebook.MetaNeedFormat: true}),
		notebook.NewCodeCell(`
			# Section "Save to zarr"

			ds = xr.open_dataset('{icisk_varname}.grib', engine='cfgrib')
			ds.to_zarr(zarr_output, mode='w')
			print(f'saved {icisk_varname} to', zarr_output)
		`, map[string]any{notebook.MetaNeedFormat: true}),
	)
	return cells
}

func cdsHistoricCells() []notebook.Cell {
	cells := dependencyCells()
	cells = append(cells,
		notebook.NewMarkdownCell(`
			## ERA5 hourly historic ingestion

			Retrieve {cds_varname} reanalysis data from the Climate Data Store.
		`, map[string]any{notebook.MetaNeedFormat: true}),
		notebook.NewCodeCell(`
			# Section "Parameters"

			historic_variables = {historic_variables}
			area = {area}
			start_time = '{start_time}'
			end_time = '{end_time}'
			zarr_output = '{zarr_output}'
		`, map[string]any{notebook.MetaNeedFormat: true}),
		notebook.NewCodeCell(`
			# Section "Data retrieval"

			client = cdsapi.Client()
			request = {
			    'product_type': 'reanalysis',
			    'variable': ['{cds_varname}'],
			    'date': f'{start_time}/{end_time}',
			    'time': [f'{h:02d}:00' for h in range(24)],
			    'area': [area[3], area[0], area[1], area[2]],
			    'format': 'netcdf',
			}
			client.retrieve('reanalysis-era5-single-levels', request, '{icisk_varname}.nc')

			ds = xr.open_dataset('{icisk_varname}.nc')
			ds.to_zarr(zarr_output, mode='w')
		`, map[string]any{notebook.MetaNeedFormat: true}),
	)
	return cells
}

func spiCells() []notebook.Cell {
	cells := dependencyCells()
	cells = append(cells,
		notebook.NewCodeCell(`
			# Section "SPI dependencies"

			!pip install scipy
			from scipy import stats
		`, map[string]any{notebook.MetaCheckImport: true}),
		notebook.NewMarkdownCell(`
			## Standardized Precipitation Index

			Compute SPI for the area of interest against the reference period.
		`, nil),
		notebook.NewCodeCell(`
			# Section "Parameters"

			area = {area}
			reference_period = {reference_period}
			period_of_interest = {period_of_interest}
		`, map[string]any{notebook.MetaNeedFormat: true}),
		notebook.NewCodeCell(`
			# Section "Precipitation retrieval"

			client = cdsapi.Client()
			request = {
			    'variable': ['total_precipitation'],
			    'product_type': 'monthly_averaged_reanalysis',
			    'year': [str(y) for y in range(reference_period[0], reference_period[1] + 1)],
			    'month': [f'{m:02d}' for m in range(1, 13)],
			    'time': '00:00',
			    'area': [area[3], area[0], area[1], area[2]],
			    'format': 'netcdf',
			}
			client.retrieve('reanalysis-era5-land-monthly-means', request, 'precipitation.nc')
			precip = xr.open_dataset('precipitation.nc')['tp']
		`, nil),
		notebook.NewCodeCell(`
			# Section "SPI computation"

			monthly = precip.resample(time='1MS').sum()
			shape, loc, scale = stats.gamma.fit(monthly.values.flatten())
			cdf = stats.gamma.cdf(monthly, shape, loc=loc, scale=scale)
			spi = xr.DataArray(stats.norm.ppf(cdf), coords=monthly.coords, name='spi')
			spi_poi = spi.sel(time=slice(period_of_interest[0], period_of_interest[1]))
			spi_poi.mean(dim=['latitude', 'longitude']).plot()
		`, nil),
	)
	return cells
}

func spiHistoricCells() []notebook.Cell {
	cells := spiCells()
	cells = append(cells,
		notebook.NewCodeCell(`
			# Section "Historic window"

			spi_window = spi.sel(time=slice('{start_time}', '{end_time}'))
			spi_window.mean(dim=['latitude', 'longitude']).plot()
		`, map[string]any{notebook.MetaNeedFormat: true}),
	)
	return cells
}
